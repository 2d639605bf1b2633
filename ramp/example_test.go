package ramp_test

import (
	"fmt"

	"github.com/cwbudde/algo-vcf/ramp"
)

func ExampleSchedule_Log() {
	freqs, err := ramp.Schedule{StartHz: 50, EndHz: 1000, Samples: 64}.Log()
	if err != nil {
		panic(err)
	}

	fmt.Printf("%.1f %.1f\n", freqs[0], freqs[63])
	// Output:
	// 50.0 1000.0
}

func ExampleSchedule_Linear() {
	freqs, err := ramp.Schedule{StartHz: 100, EndHz: 400, Samples: 4}.Linear()
	if err != nil {
		panic(err)
	}

	fmt.Printf("%.0f %.0f %.0f %.0f\n", freqs[0], freqs[1], freqs[2], freqs[3])
	// Output:
	// 100 200 300 400
}
