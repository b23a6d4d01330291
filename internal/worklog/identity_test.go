package worklog

import (
	"testing"

	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsMine(t *testing.T) {
	me := domain.Identity{AccountID: "acc-1", Name: "jdoe", DisplayName: "John Doe"}
	cases := []struct {
		name   string
		author *domain.Identity
		me     domain.Identity
		want   bool
	}{
		{"nil author", nil, me, false},
		{"account id wins over mismatched names", &domain.Identity{AccountID: "acc-1", Name: "other", DisplayName: "Someone"}, me, true},
		{"account id is case sensitive", &domain.Identity{AccountID: "ACC-1"}, domain.Identity{AccountID: "acc-1"}, false},
		{"different account ids fall through to name", &domain.Identity{AccountID: "acc-2", Name: "JDoe"}, me, true},
		{"short name case insensitive", &domain.Identity{Name: "JDOE"}, me, true},
		{"display name exact", &domain.Identity{DisplayName: "John Doe"}, me, true},
		{"display name case sensitive", &domain.Identity{DisplayName: "john doe"}, me, false},
		{"empty fields never match", &domain.Identity{}, domain.Identity{}, false},
		{"fallback identity matches by name only", &domain.Identity{AccountID: "acc-9", Name: "jdoe"}, domain.Identity{Name: "jdoe"}, true},
		{"fallback identity ignores display name", &domain.Identity{DisplayName: "jdoe"}, domain.Identity{Name: "jdoe"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsMine(tc.author, tc.me))
		})
	}
}
