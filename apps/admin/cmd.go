package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	usrSvc     *user.Service
	alumnoSvc  *alumno.Service
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL [-admin]                                  - create or update an active user")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                                     - reset user's password")
	fmt.Fprintln(cli.out, "  setrole -email EMAIL -role admin|instructor [-instructor ID] [-sede ID] - assign a role")
	fmt.Fprintln(cli.out, "  setactive -email EMAIL -active=true|false                      - activate or deactivate a user")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                         - run a goose command (up, down, status...)")
	fmt.Fprintln(cli.out, "  importalumnos -file FILE.csv                                   - bulk create alumnos")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// promptPassword reads a password without echo; an empty password prints the usage of fs.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "adduser":
		cmd := cli.newFlagSet("adduser")
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		isAdmin := cmd.Bool("admin", false, "Give the admin role to the user.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(cmd)
		if err != nil {
			return err
		}
		return cli.addUser(*email, pwd, *isAdmin)

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(cmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*email, pwd)

	case "setrole":
		cmd := cli.newFlagSet("setrole")
		email := cmd.String("email", "", "The user's email.")
		role := cmd.String("role", "", "admin or instructor.")
		instructorID := cmd.Int64("instructor", 0, "The instructor the user is bound to.")
		sedeID := cmd.Int64("sede", 0, "The sede an instructor is restricted to.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" || *role == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.setRole(*email, *role, *instructorID, *sedeID)

	case "setactive":
		cmd := cli.newFlagSet("setactive")
		email := cmd.String("email", "", "The user's email.")
		active := cmd.Bool("active", true, "Whether the user can log in.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.setActive(*email, *active)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "importalumnos":
		cmd := cli.newFlagSet("importalumnos")
		file := cmd.String("file", "", "CSV file with the header "+csvHeaderHelp)
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *file == "" {
			cmd.Usage()
			return errHelp
		}
		_, err := cli.importAlumnosFile(*file)
		return err

	default:
		cli.printUsage()
		return errHelp
	}
}
