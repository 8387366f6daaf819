// Package llm asks a language model which candidate folder a file belongs in.
// It supports OpenAI and Anthropic, with retry, rate limiting, response caching
// and a hard per-call timeout. Any failure degrades to "no suggestion".
package llm
