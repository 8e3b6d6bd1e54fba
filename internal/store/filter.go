package store

import "strings"

// LikeEscape is the escape character used in patterns built by LikePattern.
const LikeEscape = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns a free-text query into a lower-cased "contains" LIKE pattern.
// Wildcards in the query are escaped with LikeEscape.
func LikePattern(query string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}

// Empty reports whether the filter matches everything.
func (f ListFilter) Empty() bool {
	return strings.TrimSpace(f.Query) == ""
}
