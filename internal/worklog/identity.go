/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package worklog

import (
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/domain"
)

// IsMine reports whether a worklog author denotes the authenticated user.
// The first rule whose fields are set on both sides decides: account id
// (exact), then short name (case-insensitive), then display name (exact).
func IsMine(author *domain.Identity, me domain.Identity) bool {
	if author == nil {
		return false
	}
	if author.AccountID != "" && me.AccountID != "" && author.AccountID == me.AccountID {
		return true
	}
	if author.Name != "" && me.Name != "" && strings.EqualFold(author.Name, me.Name) {
		return true
	}
	if author.DisplayName != "" && me.DisplayName != "" && author.DisplayName == me.DisplayName {
		return true
	}
	return false
}
