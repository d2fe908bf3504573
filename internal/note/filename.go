package note

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const forbiddenChars = `/\:*?"<>|`

// MaxFilenameBytes is the longest filename, extension included, that common
// filesystems accept.
const MaxFilenameBytes = 255

// Filename derives a note filename from title. Whitespace runs collapse to a
// single space, path separators and characters reserved on common
// filesystems are dropped, and leading or trailing dots and spaces are
// trimmed. ext is appended unless the title already ends with it. Overlong
// titles are cut on a character boundary so the result, extension included,
// fits in MaxFilenameBytes.
func Filename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r), strings.ContainsRune(forbiddenChars, r):
			return -1
		}
		return r
	}, title)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "untitled"
	}
	if ext != "" && strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) && len(name) > len(ext) {
		ext = name[len(name)-len(ext):]
		name = name[:len(name)-len(ext)]
	}
	if limit := MaxFilenameBytes - len(ext); len(name) > limit {
		name = strings.TrimRight(truncate(name, limit), ". ")
		if name == "" {
			name = "untitled"
		}
	}
	return name + ext
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ParseTags splits a comma-separated tag list.
func ParseTags(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(csv, ","))
}

// NormalizeTags trims each tag, strips a leading '#', drops empties and
// duplicates, and sorts the result.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Hashtags renders tags as "#a #b".
func Hashtags(tags []string) string {
	var b strings.Builder
	for i, t := range tags {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('#')
		b.WriteString(t)
	}
	return b.String()
}
