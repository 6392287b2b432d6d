// Package admincli creates administrator accounts from the command line.
package admincli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/flagx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"golang.org/x/term"
)

// PasswordEnv supplies the password when stdin is not a terminal.
const PasswordEnv = "STOREFRONT_ADMIN_PASSWORD"

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var flagNames = []string{"-email", "-name", "-lastname", "-age"}

// Options describe the administrator to create.
type Options struct {
	Email    string
	Name     string
	Lastname string
	Age      int
}

// ParseOptions reads -email, -name, -lastname and -age from args, ignoring
// any other flags (the server configuration flags share the command line).
func ParseOptions(args []string) (Options, error) {
	o := Options{Name: "Admin", Lastname: "Storefront", Age: 18}

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.Email, "email", "", "administrator email")
	fs.StringVar(&o.Name, "name", o.Name, "first name")
	fs.StringVar(&o.Lastname, "lastname", o.Lastname, "last name")
	fs.IntVar(&o.Age, "age", o.Age, "age")

	if err := fs.Parse(flagx.FilterArgs(args, flagNames)); err != nil {
		return o, fmt.Errorf("parse flags: %w", err)
	}
	if strings.TrimSpace(o.Email) == "" {
		return o, errors.New("-email is required")
	}
	return o, nil
}

// ReadPassword prompts on the terminal without echo, or takes the password
// from PasswordEnv when stdin is not a terminal.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func ReadPassword(w io.Writer, lookupEnv func(string) (string, bool)) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		pw, ok := lookupEnv(PasswordEnv)
		if !ok || pw == "" {
			return nil, fmt.Errorf("stdin is not a terminal and %s is not set", PasswordEnv)
		}
		return []byte(pw), nil
	}

	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, errors.New("password must not be empty")
	}
	return pw, nil
}

// CreateAdmin registers the user with a hashed password and promotes it to
// ADMIN.
func CreateAdmin(ctx context.Context, us *services.UserService, o Options, password []byte) (*models.User, error) {
	u, err := us.Create(ctx, users.Candidate{
		Name:     o.Name,
		Lastname: o.Lastname,
		Email:    o.Email,
		Age:      o.Age,
		Password: string(password),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	admin, err := us.SetRole(ctx, u.ID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("promote user %s: %w", u.ID, err)
	}
	return admin, nil
}
