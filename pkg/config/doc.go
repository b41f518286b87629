// Package config loads declarative mock files and compiles them into setups.
//
// A mock file is YAML (JSON is accepted, being a subset). Environment
// variables are expanded before parsing using ${VAR} or ${VAR:-default}.
// Several files may be loaded at once, by path or by glob (** supported);
// matches are loaded in sorted order so registration order, and therefore
// dispatch priority, is deterministic.
//
// Example:
//
//	http:
//	  - request:
//	      method: POST
//	      path: /orders
//	      body:
//	        contains: '"sku"'
//	    response:
//	      status: 201
//	      headers:
//	        Content-Type: application/json
//	      json: {id: 1}
//	  - response:
//	      status: 503
//	      text: try later
//	websocket:
//	  path: /ws
//	  connect:
//	    text: welcome
//	  messages:
//	    - match:
//	        text: {equals: join}
//	      response:
//	        join: chat
//	        text: joined
//	    - match:
//	        jsonFields: {event: say}
//	      response:
//	        broadcast:
//	          group: chat
//	          text: hi
//	  pings:
//	    - payload: {equals: hello}
//	      pong: world
//
// Entries without a request or match section are catch-alls.
package config
