package domain

// MaxMigrationNameLength bounds a migration name; it is the width of the
// bookkeeping table's primary key column.
const MaxMigrationNameLength = 36

// MigrationStatus is a snapshot of the schema state.
type MigrationStatus struct {
	// Executed lists recorded migrations in ascending name order.
	Executed []string

	// Pending lists catalog migrations not yet recorded, in catalog order.
	Pending []string
}

// UpToDate reports whether nothing is left to run.
func (s *MigrationStatus) UpToDate() bool {
	return len(s.Pending) == 0
}

// ValidateMigrationName checks a migration name against the bookkeeping
// column constraints.
func ValidateMigrationName(name string) error {
	if name == "" {
		return NewValidationError("name", "migration name is empty")
	}
	if len(name) > MaxMigrationNameLength {
		return NewValidationError("name", "migration name "+name+" exceeds 36 characters")
	}
	return nil
}
