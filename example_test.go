// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package wsrvr

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/z5labs/wsrvr/middleware"
	"github.com/z5labs/wsrvr/parser"
)

func Example() {
	s := New(WithListen(func(network, _ string) (net.Listener, error) {
		return net.Listen(network, "127.0.0.1:0")
	})).Port(0)

	api, err := s.API().Post("/greet", middleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := parser.Body(r.Context()).(map[string]any)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "hello, %s", body["name"])
	}))
	if err != nil {
		fmt.Println(err)
		return
	}
	api.Advanced().
		AllowedOrigins("*").
		ParseJSON(nil)

	res, err := s.Start(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer s.Stop(context.Background())

	resp, err := http.Post(res.Address.String()+"greet", "application/json", strings.NewReader(`{"name":"world"}`))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(resp.StatusCode)
	fmt.Println(resp.Header.Get("Access-Control-Allow-Origin"))
	fmt.Println(string(b))
	// Output: 200
	// *
	// hello, world
}

func ExampleServer_NotFound() {
	s := New(WithListen(func(network, _ string) (net.Listener, error) {
		return net.Listen(network, "127.0.0.1:0")
	})).Port(0)

	s.NotFound(middleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "nothing here")
	}))

	res, err := s.Start(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	defer s.Stop(context.Background())

	resp, err := http.Get(res.Address.String() + "missing")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(resp.StatusCode)
	fmt.Println(string(b))
	// Output: 404
	// nothing here
}
