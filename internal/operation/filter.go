package operation

import (
	"github.com/speoper/dispatch/internal/transport"
	"github.com/speoper/dispatch/internal/user"
)

// VisibleTo restricts operations to what the caller may see. Dispatchers and
// workers without an assigned service type see everything; a scoped worker
// sees only operations with at least one transport of their service type,
// each operation exactly once. The transports of every operation must be
// loaded before calling.
func VisibleTo(role user.Role, serviceType *transport.Type, ops []Operation) []Operation {
	if role == user.RoleDispatcher || serviceType == nil {
		return ops
	}

	visible := make([]Operation, 0, len(ops))
	for _, op := range ops {
		for _, t := range op.Transports {
			if t.Type == *serviceType {
				visible = append(visible, op)
				break
			}
		}
	}
	return visible
}
