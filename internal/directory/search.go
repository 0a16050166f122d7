package directory

import (
	"sort"
	"strings"

	"laci-tracker/internal/domain"
)

// parseSearchTerms splits a query on spaces, honoring double-quoted phrases
// as single terms.
func parseSearchTerms(query string) []string {
	var terms []string
	var current strings.Builder
	inQuotes := false

	for _, r := range query {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				terms = append(terms, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		terms = append(terms, current.String())
	}
	return terms
}

// matchesEntity requires every term to substring-match at least one of
// display name, mail, principal name, or a proxy address.
func matchesEntity(e domain.DirectoryEntity, terms []string) bool {
	for _, term := range terms {
		t := strings.ToLower(term)
		if strings.Contains(strings.ToLower(e.DisplayName), t) ||
			strings.Contains(strings.ToLower(e.Mail), t) ||
			strings.Contains(strings.ToLower(e.UserPrincipalName), t) {
			continue
		}
		matched := false
		for _, proxy := range e.ProxyAddresses {
			if strings.Contains(strings.ToLower(proxy), t) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// search filters, dedupes, and ranks the combined users+groups list.
// An empty query matches everything.
func search(entities []domain.DirectoryEntity, query string) []domain.SearchResult {
	terms := parseSearchTerms(query)

	seenNames := make(map[string]struct{})
	seenMails := make(map[string]struct{})
	results := []domain.SearchResult{}

	for _, e := range entities {
		if !matchesEntity(e, terms) {
			continue
		}
		if _, dup := seenNames[e.DisplayName]; dup {
			continue
		}
		if e.Mail != "" {
			if _, dup := seenMails[e.Mail]; dup {
				continue
			}
			seenMails[e.Mail] = struct{}{}
		}
		seenNames[e.DisplayName] = struct{}{}

		r := domain.SearchResult{DisplayName: e.DisplayName}
		if e.Mail != "" {
			mail := e.Mail
			r.Mail = &mail
		}
		results = append(results, r)
	}

	// Exact display-name matches first, then entries that carry a mail
	// address before those that don't.
	queryLower := strings.ToLower(query)
	sort.SliceStable(results, func(i, j int) bool {
		iExact := strings.ToLower(results[i].DisplayName) == queryLower
		jExact := strings.ToLower(results[j].DisplayName) == queryLower
		if iExact != jExact {
			return iExact
		}
		iMail := results[i].Mail != nil
		jMail := results[j].Mail != nil
		if iMail != jMail {
			return iMail
		}
		return false
	})

	return results
}
