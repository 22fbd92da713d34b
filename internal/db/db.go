package db

import (
	"fmt"

	"jot/internal/auth"
	"jot/internal/notes"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	// TranslateError maps driver errors onto gorm sentinels
	// (gorm.ErrDuplicatedKey for unique violations).
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&auth.User{},
		&auth.Session{},
		&notes.Context{},
		&notes.Note{},
	); err != nil {
		return err
	}

	// Deleting a context takes its notes with it even when the row is
	// removed outside the service layer.
	if err := gdb.Exec(`
do $$ begin
  alter table notes
    add constraint fk_notes_context
    foreign key (context_id) references contexts(id) on delete cascade;
exception when duplicate_object then null;
end $$;
`).Error; err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_contexts_user_created on contexts(user_id, created_at asc);`,
		`create index if not exists idx_notes_user_created on notes(user_id, created_at desc);`,
		`create index if not exists idx_notes_context on notes(context_id);`,
		`create index if not exists idx_sessions_expires on sessions(expires_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
