package main

import "fmt"

// alertMessage is the operator-facing summary line for a scan.
func alertMessage(count int, threshold float64) string {
	if count == 0 {
		return fmt.Sprintf("No defects detected above %.0f%% confidence. Structure appears safe.", threshold*100)
	}
	if count == 1 {
		return "1 potential defect detected. Review the highlighted region and schedule an inspection."
	}
	return fmt.Sprintf("%d potential defects detected. Review the highlighted regions and schedule an inspection.", count)
}
