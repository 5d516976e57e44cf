package docs

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"testing"
)

// TestTopicsIndexed checks that the index and the topic files agree: every
// topic the index lists loads, and every topic file is listed.
func TestTopicsIndexed(t *testing.T) {
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var indexed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			indexed = append(indexed, strings.TrimSpace(m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	if len(indexed) == 0 {
		t.Fatal("no topics listed in readme.md")
	}

	for _, name := range indexed {
		t.Run("load_"+name, func(t *testing.T) {
			if _, err := Topic(name); err != nil {
				t.Errorf("failed to load topic %q: %v", name, err)
			}
		})
	}

	all, err := All()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range all {
		found := false
		for _, listed := range indexed {
			if listed == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("topic %q is not listed in readme.md", name)
		}
	}
}

func TestTopicStar(t *testing.T) {
	doc, err := Topic("*")
	if err != nil {
		t.Fatal(err)
	}
	for _, heading := range []string{"# Markets", "# Leverage", "# Period returns"} {
		if !strings.Contains(doc, heading) {
			t.Errorf("expanded documentation is missing %q", heading)
		}
	}
}

func TestTopicUnknown(t *testing.T) {
	if _, err := Topic("no-such-topic"); err == nil {
		t.Error("unknown topic loaded without error")
	}
}
