// Package acl provides Anti-Corruption Layer adapters that turn the Gemini
// generateContent API into domain quotes.
//
// # What is an Anti-Corruption Layer?
//
// The Anti-Corruption Layer (ACL) is a pattern from Domain-Driven Design that
// protects your domain model from external service representations. Here it
// guarantees that:
//
//   - Gemini request and response DTOs never leak into the domain
//   - Transport failures and error envelopes map to domain errors
//   - Model output is parsed and validated before a domain.Quote exists
//
// # Package Components
//
//   - [GeminiQuoteClient]: REST generator built on [clients.Client]
//   - [GenAIQuoteClient]: the same contract over the google.golang.org/genai SDK
//   - [MapHTTPError]: transport errors and HTTP statuses to domain errors
//   - [ParseErrorResponse]: Google API error envelope parsing
//   - [TranslateQuotePayload]: second-stage parse of the model's JSON text
//
// # Response Handling
//
// A generateContent response is parsed twice. The outer envelope is decoded
// and candidates[0].content.parts[0].text is extracted; that text is itself
// a JSON object which must carry every field the prompt marks as required.
// Anything else, including an empty candidate list, is a
// [domain.ErrValidation] failure for that attempt.
//
// # Error Handling Strategy
//
// Every transport or HTTP failure is translated to [domain.ErrUnavailable].
// Timeouts additionally match [context.DeadlineExceeded] so callers can
// tell them apart. Retrying is the caller's decision; each call here makes
// exactly one upstream request.
package acl
