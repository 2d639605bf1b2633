package response_test

import (
	"fmt"

	"github.com/cwbudde/algo-vcf/measure/response"
	"github.com/cwbudde/algo-vcf/vcs3"
)

func ExampleAnalyze() {
	f, err := vcs3.New(48000, vcs3.WithCutoffHz(500))
	if err != nil {
		panic(err)
	}

	resp, err := response.Analyze(f, 16384, 48000)
	if err != nil {
		panic(err)
	}

	low, err := resp.At(100)
	if err != nil {
		panic(err)
	}

	high, err := resp.At(5000)
	if err != nil {
		panic(err)
	}

	fmt.Println(low > 10*high)
	// Output:
	// true
}
