// Package authoring holds the offline tools that maintain question bank
// files: label normalization, manifest generation and spreadsheet import.
package authoring

import (
	"regexp"
	"strings"
)

var (
	separatorRun = regexp.MustCompile(`[_\-]+`)
	soapWord     = regexp.MustCompile(`(?i)soap`)
)

// HumanizeTopic turns a slug such as "soap_notes" into "Soap Notes". A
// topic that is exactly SOAP stays upper case.
func HumanizeTopic(topic string) string {
	if topic == "" {
		return topic
	}
	if strings.ToUpper(strings.TrimSpace(topic)) == "SOAP" {
		return "SOAP"
	}
	return humanize(topic)
}

// HumanizeID is HumanizeTopic for question ids, except that any "soap"
// inside the id is written as SOAP.
func HumanizeID(id string) string {
	if id == "" {
		return id
	}
	if strings.Contains(strings.ToUpper(id), "SOAP") {
		id = soapWord.ReplaceAllString(id, "SOAP")
	}
	return humanize(id)
}

// humanize replaces separator runs with spaces, upper-cases the first
// character of each word and collapses whitespace. Letters after the
// first are left as they are.
func humanize(s string) string {
	s = separatorRun.ReplaceAllString(s, " ")

	b := []byte(s)
	prevWord := false
	for i, c := range b {
		word := isWordByte(c)
		if word && !prevWord && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		prevWord = word
	}

	return strings.Join(strings.Fields(string(b)), " ")
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
