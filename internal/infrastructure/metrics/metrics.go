// Package metrics expone las métricas Prometheus de la aplicación.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ilves"

// Registry registro Prometheus propio (no el global) para exponer en /metrics.
var Registry = prometheus.NewRegistry()

// LoginAttempts intentos de login por método y resultado.
var LoginAttempts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Intentos de login por método y resultado",
	},
	[]string{"method", "result"}, // method: password|totp|certificate; result: ok|invalid|locked|second_factor|forbidden
)

// ClientCertificateLookups consultas a la caché de certificados de cliente.
var ClientCertificateLookups = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_certificate_lookups_total",
		Help:      "Consultas de usuario por certificado de cliente",
	},
	[]string{"result"}, // hit|miss|loaded|unknown|error
)

// KeyStoreOperations operaciones sobre el key store.
var KeyStoreOperations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "keystore_operations_total",
		Help:      "Operaciones sobre el key store por tipo y resultado",
	},
	[]string{"operation", "result"},
)

// CustomerMutations altas, cambios y bajas de clientes.
var CustomerMutations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customer_mutations_total",
		Help:      "Mutaciones de clientes por operación",
	},
	[]string{"operation"}, // create|update|delete|import
)

// HTTPRequests peticiones HTTP por método y código de estado.
var HTTPRequests = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Peticiones HTTP por método, ruta y código",
	},
	[]string{"method", "route", "status"},
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Result traduce un error a la etiqueta de resultado "ok"/"error".
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
