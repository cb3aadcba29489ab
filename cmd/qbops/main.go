// Command qbops invokes a registered service method directly, which is
// handy for poking the system without Telegram, e.g.:
//
//	qbops -service ml/ollama -method embed -input '{"text":"quantum computing"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/paperlab/querybot"
)

func main() {
	serviceName := flag.String("service", "", "service name, e.g. ml/ollama")
	method := flag.String("method", "", "method name, e.g. embed")
	input := flag.String("input", "{}", "method input as JSON")
	list := flag.Bool("list", false, "list registered services and exit")
	flag.Parse()

	ctx := context.Background()
	service, err := querybot.New(ctx)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	if *list {
		for _, name := range service.Actions().Services() {
			target := service.Actions().Lookup(name)
			for _, signature := range target.Methods() {
				fmt.Printf("%v.%v\t%v\n", name, signature.Name, signature.Description)
			}
		}
		return
	}
	if *serviceName == "" || *method == "" {
		flag.Usage()
		os.Exit(2)
	}

	var payload map[string]interface{}
	if err = json.Unmarshal([]byte(*input), &payload); err != nil {
		log.Fatalf("invalid -input JSON: %v", err)
	}

	output, err := service.Invoker().Invoke(ctx, *serviceName, *method, payload)
	if err != nil {
		log.Fatalf("invocation failed: %v", err)
	}
	result, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("failed to render output: %v", err)
	}
	fmt.Println(string(result))
}
