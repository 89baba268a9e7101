// Package main provides a CLI tool for generating caller tokens for the
// Podium API. By default tokens are signed with the dev key and will NOT work
// against a server configured with its own JWT_SIGNING_KEY.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "podium/internal/jwt_token"
	"podium/internal/platform/config"
	id "podium/pkg/domain"
)

const (
	defaultIssuer   = "podium"
	defaultAudience = "podium-api"
	defaultTokenTTL = 1 * time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	callerCmd := flag.NewFlagSet("caller", flag.ExitOnError)

	callerID := callerCmd.String("caller", "", "Caller identity. A random one is generated if empty.")
	callerTTL := callerCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	callerKey := callerCmd.String("key", "", "Signing key. Defaults to JWT_SIGNING_KEY, then the dev key.")
	callerIssuer := callerCmd.String("issuer", defaultIssuer, "Token issuer")
	callerAudience := callerCmd.String("audience", defaultAudience, "Token audience")
	callerJSON := callerCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "caller":
		callerCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateCallerToken(*callerID, *callerKey, *callerIssuer, *callerAudience, *callerTTL, *callerJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate caller tokens for the Podium API

WARNING: Without -key or JWT_SIGNING_KEY, tokens use the dev signing key.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  caller    Generate a caller token (JWT)

Examples:
  # Token for a random caller
  tokengen caller

  # Token for the registry owner configured via REGISTRY_OWNER
  tokengen caller -caller "$REGISTRY_OWNER"

  # Longer lived token as JSON
  tokengen caller -caller alice -ttl 24h -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateCallerToken(caller, key, issuer, audience string, ttl time.Duration, jsonOutput bool) {
	signingKey, keyType := resolveSigningKey(key)
	if caller == "" {
		caller = "caller-" + uuid.NewString()
	}

	svc := jwttoken.NewJWTService(signingKey, issuer, audience)
	token, err := svc.GenerateCallerToken(id.CallerID(caller), ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "caller_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub": caller,
				"iss": issuer,
				"aud": audience,
			},
			Usage: map[string]string{
				"header":      "Authorization: Bearer <token>",
				"signing_key": keyType,
			},
		})
		return
	}

	fmt.Println("Caller Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("Caller:      %s\n", caller)
	fmt.Printf("Issuer:      %s\n", issuer)
	fmt.Printf("Audience:    %s\n", audience)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/v1/athletes/me")
}

func resolveSigningKey(flagKey string) (string, string) {
	if flagKey != "" {
		return flagKey, "flag"
	}
	if key := os.Getenv("JWT_SIGNING_KEY"); key != "" {
		return key, "env"
	}
	return config.DevJWTSigningKey, "dev"
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
