// Package huefy is a Go client for the Huefy templated email service.
//
// The service renders a stored template with caller-supplied data and
// delivers it through one of its email providers. The client validates
// requests locally, sends them over HTTP, classifies failures into typed
// errors and retries transient ones with exponential backoff.
//
// # Basic Usage
//
//	client, err := huefy.New(huefy.DefaultConfig(), huefy.WithAPIKey(os.Getenv("HUEFY_API_KEY")))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Send(ctx, "welcome-email", "john@example.com", map[string]any{
//		"name": "John",
//	})
//
// # Errors
//
// Every failure is a *huefy.Error. Branch on its Kind:
//
//	var e *huefy.Error
//	if errors.As(err, &e) {
//		switch e.Kind {
//		case huefy.KindTemplateNotFound:
//			log.Printf("no template %q", e.TemplateKey)
//		case huefy.KindRateLimit:
//			log.Printf("retry after %v", e.RetryAfter)
//		}
//	}
//
// Network failures, timeouts, rate limits and server errors are retried
// before they surface. Everything else surfaces on the first attempt.
//
// # Features
//
//   - Single and bulk sends, health checks
//   - Automatic retries with exponential backoff honoring Retry-After
//   - Context cancellation at any point, including between retries
//   - Distributed tracing with OpenTelemetry
//   - Prometheus metrics and zap logging
//   - Thread-safe operations
package huefy
