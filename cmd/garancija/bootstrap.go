package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/erazemk/garancija/internal/auth"
	"github.com/erazemk/garancija/internal/db"
	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/store"
)

// openDatabase opens the database at path, creating it with an admin account
// when the file does not exist yet. The generated admin password is written
// to out once.
func openDatabase(ctx context.Context, path, adminUser string, out io.Writer) (*sql.DB, error) {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, err
	}
	if !fresh {
		return database, nil
	}

	password, err := bootstrapAdmin(ctx, database, adminUser)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, err
	}

	fmt.Fprintf(out, "Database created: %s\n\n", path)
	fmt.Fprintln(out, "Admin account created:")
	fmt.Fprintf(out, "  Username: %s\n", adminUser)
	fmt.Fprintf(out, "  Password: %s\n\n", password)
	fmt.Fprintln(out, "Save this password, it cannot be recovered.")
	fmt.Fprintln(out, "The admin can change it after logging in.")
	fmt.Fprintln(out)
	return database, nil
}

func bootstrapAdmin(ctx context.Context, database *sql.DB, username string) (string, error) {
	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	if _, err := store.CreateUser(ctx, database, username, hash, model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
