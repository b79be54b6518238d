package config_test

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/walteh/to-uni/pkg/config"
)

func ExampleParse() {
	data := []byte(`
prefix: "\\"
patterns:
  alpha: "α"
  to: "→"
`)

	cfg, err := config.Parse(context.Background(), "to-uni.yml", data)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	set, err := cfg.PatternSet()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	for _, p := range set.Pairs() {
		fmt.Printf("%s -> %s\n", p.Pattern, p.Replacement)
	}

	// Output:
	// \alpha -> α
	// \to -> →
}

func ExampleUpwardResolver() {
	files := map[string]string{
		"/home/ada/thesis/to-uni.json": `{"patterns": {"--": "–"}}`,
	}

	r := &config.UpwardResolver{
		Name: "to-uni.json",
		ReadFile: func(path string) ([]byte, error) {
			if data, ok := files[path]; ok {
				return []byte(data), nil
			}
			return nil, fs.ErrNotExist
		},
	}

	cfg, err := r.Resolve(context.Background(), "/home/ada/thesis/chapters")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(cfg.Location())

	// Output:
	// /home/ada/thesis/to-uni.json
}
