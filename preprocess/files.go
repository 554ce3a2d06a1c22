package preprocess

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/teranos/ontomap/errors"
)

// ReadLines returns the non-blank lines of path with surrounding space trimmed
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return lines, nil
}

// splitTags splits "value;:;tag1,tag2" into the value and its tags
func splitTags(line string) (string, []string) {
	value, rawTags, found := strings.Cut(line, TagSeparator)
	value = strings.TrimSpace(value)
	if !found {
		return value, nil
	}
	var tags []string
	for _, tag := range strings.Split(rawTags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return value, tags
}

// ReadTemplates reads one template per line, optionally followed by ;:; and tags
func ReadTemplates(path string) ([]Template, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	templates := make([]Template, 0, len(lines))
	for i, line := range lines {
		expr, tags := splitTags(line)
		tmpl, err := NewTemplate(expr, tags...)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, i+1)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// ReadBlocklist reads one regular expression per line
func ReadBlocklist(path string) ([]*regexp.Regexp, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	blocklist := make([]*regexp.Regexp, 0, len(lines))
	for i, line := range lines {
		re, err := regexp.Compile(line)
		if err != nil {
			return nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidRequest), "%s line %d: invalid blocklist pattern", path, i+1)
		}
		blocklist = append(blocklist, re)
	}
	return blocklist, nil
}

// ReadTaggedTerms reads "term;:;tag1,tag2" lines. Tags are optional.
func ReadTaggedTerms(path string) ([]TaggedTerm, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	terms := make([]TaggedTerm, 0, len(lines))
	for _, line := range lines {
		term, tags := splitTags(line)
		terms = append(terms, TaggedTerm{Term: term, Tags: tags})
	}
	return terms, nil
}
