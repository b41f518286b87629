// Package cli implements the mocket command line.
//
//	mocket serve --config 'mocks/**/*.yaml' --port 8080
//	mocket validate --config mocks.yaml
//	mocket probe ws://localhost:8080/ws --send join --send '{"event":"say"}'
//	mocket version
package cli
