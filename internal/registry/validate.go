package registry

import (
	"context"
	"time"

	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/specialistvlad/nodereg/internal/regerr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// checkPrecondition refuses mutations while settings cannot be written.
func (r *Registry) checkPrecondition() error {
	if r.settings == nil || !r.settings.Available() {
		return regerr.New(regerr.KindPreconditionUnavailable, "settings are not available, node configuration cannot be changed")
	}
	return nil
}

// checkTypeConflicts rejects a module declaring a node type that another
// module already owns.
func (r *Registry) checkTypeConflicts(mod model.Module) error {
	for _, nt := range mod.NodeTypes {
		if owner, ok := r.store.Owner(nt.Name); ok && owner != mod.Name {
			return regerr.New(regerr.KindInstallFailure, "node type '%s' is already registered by module '%s'", nt.Name, owner).
				WithCode(regerr.CodeTypeAlreadyRegistered)
		}
	}
	return nil
}

// holdModule keeps installs and uninstalls of module out until the returned
// release is called. It fails while one of them is already in flight.
func (r *Registry) holdModule(module string) (release func(), err error) {
	return r.gateway.Hold(module)
}

// operation is one traced and measured registry mutation.
type operation struct {
	r     *Registry
	name  string
	span  trace.Span
	start time.Time
}

// begin starts an operation. The returned context keeps the caller's values
// but not its cancellation: once started, an operation runs to completion.
func (r *Registry) begin(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := r.tracer.Start(ctx, "registry."+name, trace.WithAttributes(attrs...))
	return ctx, &operation{r: r, name: name, span: span, start: time.Now()}
}

// end records the result of the operation and refreshes the inventory
// gauges.
func (op *operation) end(err error) {
	defer op.span.End()

	result := "ok"
	if err != nil {
		result = string(regerr.From(err).Code)
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	} else {
		op.span.SetStatus(codes.Ok, "")
	}
	op.r.metrics.ObserveOperation(op.name, result, time.Since(op.start))
	op.r.updateInventory()
}

func (r *Registry) updateInventory() {
	if r.metrics == nil {
		return
	}
	snap := r.store.Snapshot()
	byState := make(map[string]int)
	for state, n := range snap.CountByState() {
		byState[state.String()] = n
	}
	r.metrics.SetInventory(len(snap.Modules), byState)
}
