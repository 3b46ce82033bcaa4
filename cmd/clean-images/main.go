package main

import (
	"fmt"
	"log"
	"os"

	"room-listing-service/internal"
)

func main() {
	report, err := internal.RunImageCleanup()
	if err != nil {
		log.Fatalf("Image cleanup failed: %v", err)
	}

	for _, name := range report.Deleted {
		fmt.Fprintf(os.Stdout, "deleted %s\n", name)
	}
	fmt.Fprintf(os.Stdout, "deleted: %d, failed: %d, retained: %d\n", report.DeletedCount(), len(report.Failed), report.Retained)
	if len(report.Failed) > 0 {
		os.Exit(1)
	}
}
