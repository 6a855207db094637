// Package assemblyai is a minimal client for the AssemblyAI v2 REST API:
// upload a local file, request a speaker-labelled transcript and poll until
// it completes.
package assemblyai
