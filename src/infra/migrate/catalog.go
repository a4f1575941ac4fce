package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"webscaffold/src/core/domain"
	"webscaffold/src/infra/db"
)

// filePattern matches migration file names: leading digits, then word
// characters or hyphens.
var filePattern = regexp.MustCompile(`^\d+[\w-]+\.sql$`)

// Section markers inside a migration file. They follow goose's annotation
// syntax so files stay usable with that tool.
const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// Step applies or reverts one migration on a borrowed connection.
type Step func(ctx context.Context, conn *db.Conn) error

// Migration is a named schema change.
type Migration struct {
	Name string
	Up   Step
	Down Step
}

// Catalog is the ordered set of known migrations.
type Catalog []Migration

// NewCatalog validates migrations and sorts them by name.
func NewCatalog(migrations ...Migration) (Catalog, error) {
	seen := make(map[string]bool, len(migrations))
	c := make(Catalog, 0, len(migrations))
	for _, m := range migrations {
		if err := domain.ValidateMigrationName(m.Name); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, domain.NewConflictError("duplicate migration " + m.Name)
		}
		seen[m.Name] = true
		c = append(c, m)
	}
	sort.SliceStable(c, func(i, j int) bool { return c[i].Name < c[j].Name })
	return c, nil
}

// Names returns the migration names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, m := range c {
		names[i] = m.Name
	}
	return names
}

// Lookup finds a migration by name.
func (c Catalog) Lookup(name string) (Migration, bool) {
	for _, m := range c {
		if m.Name == name {
			return m, true
		}
	}
	return Migration{}, false
}

// Load discovers SQL migrations in fsys. Paths matching glob whose base name
// matches the migration file pattern become migrations named after the file
// without its extension.
func Load(fsys fs.FS, glob string, extra ...Migration) (Catalog, error) {
	var migrations []Migration

	err := doublestar.GlobWalk(fsys, glob, func(p string, d fs.DirEntry) error {
		if d.IsDir() || !filePattern.MatchString(path.Base(p)) {
			return nil
		}
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", p, err)
		}
		up, down := splitSections(string(body))
		migrations = append(migrations, Migration{
			Name: strings.TrimSuffix(path.Base(p), ".sql"),
			Up:   SQL(up),
			Down: SQL(down),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	return NewCatalog(append(migrations, extra...)...)
}

// SQL returns a step executing statement. An empty statement does nothing.
func SQL(statement string) Step {
	statement = strings.TrimSpace(statement)
	return func(ctx context.Context, conn *db.Conn) error {
		if statement == "" {
			return nil
		}
		_, err := conn.Exec(ctx, statement)
		return err
	}
}

// splitSections separates the up and down parts of a migration file.
// A file without markers is entirely the up part.
func splitSections(body string) (up, down string) {
	if !strings.Contains(body, upMarker) && !strings.Contains(body, downMarker) {
		return body, ""
	}

	var upLines, downLines []string
	var current *[]string
	for _, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case upMarker:
			current = &upLines
			continue
		case downMarker:
			current = &downLines
			continue
		}
		if current != nil {
			*current = append(*current, line)
		}
	}
	return strings.Join(upLines, "\n"), strings.Join(downLines, "\n")
}
