package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OperationSwap         = "swap"
	OperationRedeem       = "redeem"
	OperationSetValidator = "set_validator"
)

var OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bridge",
	Subsystem: "core",
	Name:      "operations_total",
	Help:      "Shows the number of bridge operations by result. Status is ok, a stable error code or error for collaborator failures.",
}, []string{"bridge_id", "chain_id", "operation", "status"})

func operationStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if code := ErrorCode(err); code != "" {
		return code
	}
	return "error"
}
