package middleware

import "github.com/aretw0/stepsheet/pkg/ports"

// Middleware allows wrapping an AnalysisStore to add behavior.
type Middleware func(ports.AnalysisStore) ports.AnalysisStore
