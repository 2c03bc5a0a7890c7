package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigenerus/sigenerus/core/region"
	"github.com/sigenerus/sigenerus/core/user"
	"github.com/sigenerus/sigenerus/tests"
)

const testPwd = "Sup3r-Secret!"

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	logger = log.New(io.Discard, "", 0)
	env := testutil.NewEnv()
	return &commandLine{usrSvc: env.Users}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

type extra struct {
	pwd string
}

func mockPassword(tt cliTest) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		if extra, ok := tt.extra.(extra); ok {
			return []byte(extra.pwd), nil
		}
		return nil, nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "4"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	r := env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	testutil.CreateUser(t, env.UserRepo, "Taken", "taken", testPwd, user.RoleAdmin)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no role", args: []string{"adduser", "-username", "root", "-fullname", "Root"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "root", "-fullname", "Root", "-role", user.RoleSuperAdmin}, wantErr: errHelp},
		{
			name: "username taken", args: []string{"adduser", "-username", "taken", "-fullname", "Root", "-role", user.RoleSuperAdmin},
			extra: extra{pwd: testPwd}, wantErr: user.ErrUsernameExists,
		},
		{
			name: "unknown kelompok", args: []string{"adduser", "-username", "pare", "-fullname", "Admin", "-role", user.RoleKelompok, "-kelompok", "nope"},
			extra: extra{pwd: testPwd}, wantErr: region.ErrKelompokNotFound,
		},
		{
			name: "super admin", args: []string{"adduser", "-username", "Root", "-fullname", "Root", "-role", user.RoleSuperAdmin},
			extra: extra{pwd: testPwd},
		},
		{
			name: "kelompok admin", args: []string{"adduser", "-username", "tulungrejo", "-fullname", "Admin Tulungrejo", "-role", user.RoleKelompok, "-kelompok", r.Kelompok.ID},
			extra: extra{pwd: testPwd},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	root, err := env.Users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, user.RoleSuperAdmin, root.Role)
	assert.NoError(t, root.CheckPassword(testPwd))

	admin, err := env.Users.GetByUsername(context.Background(), "tulungrejo")
	require.NoError(t, err)
	assert.Equal(t, r.Kelompok.ID, admin.KelompokID.String)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "User", "awe", testPwd, user.RoleDesa)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", "AWE"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	refreshed, err := env.Users.GetByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("lmao"))
}
