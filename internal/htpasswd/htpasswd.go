package htpasswd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	gohtpasswd "github.com/tg123/go-htpasswd"
)

// File is a parsed htpasswd file. Every scheme Apache htpasswd writes
// (apr1, bcrypt, {SHA}, crypt, plain) is accepted.
type File struct {
	users   []string
	matcher *gohtpasswd.File
}

func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*File, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	users, entries, err := scanEntries(content)
	if err != nil {
		return nil, err
	}

	var badLines []error
	matcher, err := gohtpasswd.NewFromReader(bytes.NewReader(entries), gohtpasswd.DefaultSystems, func(err error) {
		badLines = append(badLines, err)
	})
	if err != nil {
		return nil, err
	} else if len(badLines) > 0 {
		return nil, fmt.Errorf("htpasswd: %v", badLines[0])
	}
	return &File{users: users, matcher: matcher}, nil
}

// scanEntries returns the user names and the entries without comments
// and blank lines.
func scanEntries(content []byte) (users []string, entries []byte, err error) {
	var (
		buf     bytes.Buffer
		scanner = bufio.NewScanner(bytes.NewReader(content))
		lineNum = 0
	)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, _, ok := strings.Cut(line, ":")
		if !ok || user == "" {
			return nil, nil, fmt.Errorf("htpasswd: malformed entry at line %d", lineNum)
		}
		users = append(users, user)
		buf.WriteString(line + "\n")
	}
	if err = scanner.Err(); err != nil {
		return nil, nil, err
	}
	sort.Strings(users)
	return users, buf.Bytes(), nil
}

func (f *File) Users() []string { return f.users }

func (f *File) Verify(user, password string) bool {
	return f.matcher.Match(user, password)
}
