package pago

import (
	"context"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
)

var (
	// errors
	ErrNotFound       = errors.New("pago no encontrado")
	ErrPagoExists     = errors.New("ya existe un pago de este alumno para ese mes")
	ErrAlumnoNotFound = errors.New("el alumno seleccionado no existe")
	ErrConflict       = errors.New("el pago fue modificado al mismo tiempo, intenta nuevamente")
)

const toggleAttempts = 3

var nowFunc = time.Now // mockable

type (
	Repository interface {
		CreatePago(ctx context.Context, p Pago) (Pago, error)
		// GetPago returns the Pago with its AlumnoRef.
		GetPago(ctx context.Context, id int64) (Pago, error)
		// QueryPagos lists pagos with their AlumnoRef; default order is pagado_en descending, unpaid last.
		QueryPagos(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Pago, error)
		// SetPagado updates pagado and pagado_en only, and only when pagado differs from the stored value.
		// It reports whether the row changed.
		SetPagado(ctx context.Context, id int64, pagado bool, pagadoEn null.Time) (bool, error)
		DeletePago(ctx context.Context, id int64) error
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, validate: validate}
}

func (svc *Service) checkRepoErr(err error) error {
	switch errors.Cause(err) {
	case ErrPagoExists:
		return core.NewValidationError(ErrPagoExists, core.FieldError{Field: "mes", Error: ErrPagoExists.Error()})
	case ErrAlumnoNotFound:
		return core.NewValidationError(ErrAlumnoNotFound, core.FieldError{Field: "alumno_id", Error: ErrAlumnoNotFound.Error()})
	}
	return err
}

// Create registers a Pago; a Pago created as paid is stamped with the current time.
func (svc *Service) Create(ctx context.Context, np NewPago) (Pago, error) {
	if err := np.Validate(svc.validate); err != nil {
		return Pago{}, err
	}
	now := nowFunc().UTC()
	p := Pago{
		AlumnoID:   np.AlumnoID,
		Mes:        np.Mes,
		Anio:       np.Anio,
		Monto:      np.Monto,
		MetodoPago: np.MetodoPago,
		Pagado:     np.Pagado,
		PagadoEn:   null.NewTime(now, np.Pagado),
		CreatedAt:  now,
	}
	p, err := svc.repo.CreatePago(ctx, p)
	if err != nil {
		return Pago{}, svc.checkRepoErr(err)
	}
	if p, err = svc.repo.GetPago(ctx, p.ID); err != nil {
		return Pago{}, err
	}
	if p.Pagado {
		svc.sendReceipt(p)
	}
	return p, nil
}

func (svc *Service) Get(ctx context.Context, id int64) (Pago, error) {
	return svc.repo.GetPago(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Pago, error) {
	filter.Clean()
	return svc.repo.QueryPagos(ctx, filter, ordering)
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeletePago(ctx, id)
}

// SetPagado marks the Pago paid (stamping pagado_en) or unpaid (clearing it).
// A receipt is mailed by the call that marks it paid.
func (svc *Service) SetPagado(ctx context.Context, id int64, pagado bool) (Pago, error) {
	changed, err := svc.repo.SetPagado(ctx, id, pagado, null.NewTime(nowFunc().UTC(), pagado))
	if err != nil {
		return Pago{}, err
	}
	p, err := svc.repo.GetPago(ctx, id)
	if err != nil {
		return Pago{}, err
	}
	if changed && pagado {
		svc.sendReceipt(p)
	}
	return p, nil
}

// Toggle flips the paid state of the Pago. The flip only applies to the state it was read in,
// so concurrent toggles each flip it once.
func (svc *Service) Toggle(ctx context.Context, id int64) (Pago, error) {
	for i := 0; i < toggleAttempts; i++ {
		p, err := svc.repo.GetPago(ctx, id)
		if err != nil {
			return Pago{}, err
		}

		pagado := !p.Pagado
		pagadoEn := null.NewTime(nowFunc().UTC(), pagado)
		changed, err := svc.repo.SetPagado(ctx, id, pagado, pagadoEn)
		if err != nil {
			return Pago{}, err
		}
		if !changed {
			continue
		}

		p.Pagado, p.PagadoEn = pagado, pagadoEn
		if pagado {
			svc.sendReceipt(p)
		}
		return p, nil
	}
	return Pago{}, errors.Wrapf(ErrConflict, "toggling pago %d", id)
}

// Resumen totals the paid pagos matching filter.
func (svc *Service) Resumen(ctx context.Context, filter QueryFilter) (Resumen, error) {
	pagos, err := svc.Query(ctx, filter)
	if err != nil {
		return Resumen{}, err
	}
	return Resumir(pagos), nil
}

func (svc *Service) sendReceipt(p Pago) {
	if p.Alumno == nil || p.Alumno.Email == "" {
		return
	}
	nombre := p.Alumno.Nombres + " " + p.Alumno.Apellidos
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: nombre, Address: p.Alumno.Email}},
		Subject:      "Recibo de pago " + p.Mes + " " + strconv.Itoa(p.Anio),
		TemplateName: "pago_recibo",
		TemplateData: map[string]string{
			"Nombre":     nombre,
			"Mes":        p.Mes,
			"Anio":       strconv.Itoa(p.Anio),
			"Monto":      FormatMonto(p.Monto),
			"MetodoPago": p.MetodoPago,
			"PagadoEn":   p.PagadoEn.Time.Format("02-01-2006"),
		},
	})
}
