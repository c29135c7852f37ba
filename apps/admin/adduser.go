package main

import (
	"context"
	"fmt"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(email, pwd string, isAdmin bool) error {
	usr, err := cli.usrSvc.AddUser(context.Background(), email, pwd, isAdmin)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s saved\n", usr.Email)
	return nil
}
