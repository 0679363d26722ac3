package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/watermelon-studio/studio-booking/internal/repository"
)

// logActivity appends one audit line; best effort, a failed write never
// fails the operation that produced it.
func logActivity(ctx context.Context, repo repository.ActivityRepository, format string, args ...any) {
	if repo == nil {
		return
	}
	if err := repo.Record(ctx, fmt.Sprintf(format, args...)); err != nil {
		log.Printf("[activitylog] failed to record entry: %v", err)
	}
}

const maxSlugLen = 40

// slugify lowercases the name and collapses runs of non-alphanumerics into
// single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	return slug
}

// initials joins the first rune of every word: "Yoga for Beginners" → "YfB".
func initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}
