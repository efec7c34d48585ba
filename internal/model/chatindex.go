// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/hollandm/ragchat-tui/internal/util"
)

// titleMaxRunes is the number of runes kept from the first user message
// when deriving a chat title. An ellipsis is appended only when the
// message was actually longer.
const titleMaxRunes = 50

// ChatEntry is one row of the persisted chat index: a known session and
// the metadata needed to list it in the sidebar. Entries are unique by ID.
type ChatEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// DeriveTitle derives a chat title from the first user message of a
// session. The title is the message's first 50 characters, with "..."
// appended when the message was longer. Derivation happens once per
// session; later messages never change the title.
func DeriveTitle(content string) string {
	return util.TruncateRunes(content, titleMaxRunes)
}

// ============================================================================
// DATE BUCKETS
// ============================================================================

// Bucket is a display grouping for the sidebar. Buckets are computed
// from timestamps at render time and never stored.
type Bucket int

const (
	BucketToday Bucket = iota
	BucketYesterday
	BucketWeek
	BucketMonth
	BucketOlder
)

// Label returns the sidebar heading for the bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketWeek:
		return "Previous 7 days"
	case BucketMonth:
		return "Previous 30 days"
	default:
		return "Older"
	}
}

// BucketFor returns the display bucket for a timestamp relative to now.
func BucketFor(ts, now time.Time) Bucket {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case !ts.Before(startOfDay):
		return BucketToday
	case !ts.Before(startOfDay.AddDate(0, 0, -1)):
		return BucketYesterday
	case !ts.Before(startOfDay.AddDate(0, 0, -7)):
		return BucketWeek
	case !ts.Before(startOfDay.AddDate(0, 0, -30)):
		return BucketMonth
	default:
		return BucketOlder
	}
}

// GroupByBucket partitions entries into display buckets, preserving the
// relative order of entries within each bucket.
func GroupByBucket(entries []ChatEntry, now time.Time) map[Bucket][]ChatEntry {
	groups := make(map[Bucket][]ChatEntry)
	for _, e := range entries {
		b := BucketFor(e.Timestamp, now)
		groups[b] = append(groups[b], e)
	}
	return groups
}

// Buckets lists all buckets in display order.
func Buckets() []Bucket {
	return []Bucket{BucketToday, BucketYesterday, BucketWeek, BucketMonth, BucketOlder}
}
