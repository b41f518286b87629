// Package mockettest runs a mocket server inside Go tests.
//
//	func TestClient(t *testing.T) {
//		mock := mockettest.New(t)
//		mock.HTTP(
//			predicate.Equals{Extractor: predicate.Path(), Value: predicate.Text("/users/1")},
//			resolve.Text(`{"id": 1}`),
//		)
//		url := mock.Start()
//
//		resp, err := http.Get(url + "/users/1")
//		// ...
//		mock.AssertCalled("http#1", 1)
//	}
//
// Setups are registered before Start; the server is stopped when the test
// ends. Every exchange is recorded and can be inspected with Exchanges.
package mockettest
