package main

import (
	"context"

	"github.com/sigenerus/sigenerus/core/user"
)

// addUser creates an admin account. The password policy of the API applies.
func (cli *commandLine) addUser(nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	logger.Printf("user %q created with role %s\n", usr.Username, usr.Role)
	return nil
}
