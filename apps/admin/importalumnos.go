package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
)

var (
	csvColumns    = []string{"nombres", "apellidos", "rut", "fecha_nacimiento", "grado", "sede_id", "instructor_id", "telefono", "email", "direccion"}
	csvHeaderHelp = strings.Join(csvColumns, ",")

	errMissingColumns = errors.New("missing CSV columns")
)

type (
	importFailure struct {
		Line  int
		Error string
	}

	importResult struct {
		Created  int
		Failures []importFailure
	}
)

func (cli *commandLine) importAlumnosFile(name string) (importResult, error) {
	f, err := os.Open(name)
	if err != nil {
		return importResult{}, errors.Wrap(err, "opening CSV file")
	}
	defer func() { _ = f.Close() }()
	return cli.importAlumnos(f)
}

// importAlumnos creates one alumno per CSV row; a failing row is reported and skipped.
func (cli *commandLine) importAlumnos(r io.Reader) (importResult, error) {
	var res importResult
	ctx := context.Background()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return res, errors.Wrap(err, "reading CSV header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))] = i
	}
	var missing []string
	for _, name := range csvColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return res, errors.Wrap(errMissingColumns, strings.Join(missing, ", "))
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Failures = append(res.Failures, importFailure{Line: line, Error: err.Error()})
			continue
		}
		get := func(name string) string {
			if i := cols[name]; i < len(record) {
				return record[i]
			}
			return ""
		}

		na, err := newAlumnoFromRow(get)
		if err == nil {
			_, err = cli.alumnoSvc.Create(ctx, na)
		}
		if err != nil {
			res.Failures = append(res.Failures, importFailure{Line: line, Error: cli.errorText(err)})
			continue
		}
		res.Created++
	}

	fmt.Fprintf(cli.out, "alumnos creados: %d, con errores: %d\n", res.Created, len(res.Failures))
	for _, f := range res.Failures {
		fmt.Fprintf(cli.out, "  línea %d: %s\n", f.Line, f.Error)
	}
	return res, nil
}

func newAlumnoFromRow(get func(string) string) (alumno.NewAlumno, error) {
	na := alumno.NewAlumno{
		Nombres:   get("nombres"),
		Apellidos: get("apellidos"),
		RUT:       get("rut"),
		Grado:     get("grado"),
		Telefono:  get("telefono"),
		Email:     get("email"),
		Direccion: get("direccion"),
	}

	var err error
	if na.FechaNacimiento, err = core.DatePtr(get("fecha_nacimiento")); err != nil {
		return na, errors.New("fecha_nacimiento: la fecha no es válida")
	}
	if na.SedeID, err = parseOptionalID(get("sede_id")); err != nil {
		return na, errors.New("sede_id: " + err.Error())
	}
	if na.InstructorID, err = parseOptionalID(get("instructor_id")); err != nil {
		return na, errors.New("instructor_id: " + err.Error())
	}
	return na, nil
}

func parseOptionalID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("no es un número")
	}
	return id, nil
}

// errorText renders validation errors as "field: message" pairs sorted by field.
func (cli *commandLine) errorText(err error) string {
	flds, ok := core.FieldErrors(err, cli.translator)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(flds))
	for fld, msg := range flds {
		parts = append(parts, fld+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
