package main

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if _, err = cli.usrSvc.SetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s reset\n", usr.Email)
	return nil
}

func (cli *commandLine) setRole(email, role string, instructorID, sedeID int64) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	ur, err := cli.usrSvc.UpsertRole(ctx, user.UpsertRole{
		UserID:       usr.ID,
		Role:         role,
		InstructorID: null.NewInt64(instructorID, instructorID > 0),
		SedeID:       null.NewInt64(sedeID, sedeID > 0),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s is now %s\n", ur.Email, ur.Role.String)
	return nil
}

func (cli *commandLine) setActive(email string, active bool) error {
	usr, err := cli.usrSvc.SetActive(context.Background(), email, active)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s active: %t\n", usr.Email, usr.IsActive)
	return nil
}
