package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"visionallende/internal/apierror"
	"visionallende/internal/money"
	"visionallende/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal and money.Monto validate as numbers so min=0, gt=0 and
	// required work on them.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch v := field.Interface().(type) {
		case decimal.Decimal:
			return v.InexactFloat64()
		case money.Monto:
			return v.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{}, money.Monto{})

	// Report fields by their JSON / form name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, money.ErrMontoInvalido) {
			c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"monto": err.Error()}))
			return false
		}
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros inválidos: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.Error(err)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseID reads a UUID path parameter, answering 400 when malformed.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to their HTTP status. Anything else is
// handed to the ErrorHandler middleware, which logs it and answers 500.
func respondError(c *gin.Context, err error) {
	se, ok := service.AsError(err)
	if !ok {
		_ = c.Error(err)
		return
	}
	switch se.Kind {
	case service.KindValidation:
		if len(se.Fields) > 0 {
			c.JSON(http.StatusUnprocessableEntity, &apierror.ValidationError{Detail: se.Msg, Fields: se.Fields})
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(se.Msg))
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, apierror.New(se.Msg))
	case service.KindConflict:
		c.JSON(http.StatusConflict, apierror.NewConflict(se.Msg, se.ExistingID))
	case service.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, apierror.New(se.Msg))
	default:
		_ = c.Error(err)
	}
}
