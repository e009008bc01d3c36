package submit

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/submission"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

type Router interface {
	Route(ctx context.Context, values, hidden map[string]any) (submission.Outcome, error)
}

// Register registers the submission route
func Register(g *echo.Group) {
	g.POST("/submit", Submit)
}

type SubmitRequest struct {
	Values map[string]any `json:"values"`
	Hidden map[string]any `json:"hidden"`
}

// Submit handles POST /submit. A submission where every attempted update failed is
// answered with 502; a partial failure is a 200 with ok=false.
func Submit(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "routes.submit.Submit")
	defer span.End()

	req, err := utils.BindRequest[SubmitRequest](c)
	if err != nil {
		return err
	}

	ctx, router, err := ectoinject.GetContext[Router](ctx)
	if err != nil {
		return err
	}

	outcome, err := router.Route(ctx, req.Values, req.Hidden)
	if err != nil {
		return err
	}

	if outcome.AllFailed() {
		return c.JSON(http.StatusBadGateway, outcome)
	}
	return c.JSON(http.StatusOK, outcome)
}
