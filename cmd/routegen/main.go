// Command routegen builds route-mapping.json from the operator's
// lista.txt directory dump. It runs offline, once per timetable change;
// the tracker service only consumes its output.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"github.com/gradski-prevoz/tracker/internal/routelist"
)

var (
	flagIn  = flag.String("in", "api/lista/lista.txt", "path to the lista.txt dump")
	flagOut = flag.String("out", "public/route-mapping.json", "where to write the route mapping")
)

func main() {
	flag.Parse()

	in, err := os.Open(*flagIn)
	if err != nil {
		log.Fatalf("Failed to open route list: %v", err)
	}
	defer in.Close()

	log.Printf("Reading %s...", *flagIn)
	mapping, err := routelist.Parse(in)
	if err != nil {
		log.Fatalf("Failed to parse route list: %v", err)
	}
	log.Printf("Found %d routes", len(mapping))

	data, err := encodeSorted(mapping)
	if err != nil {
		log.Fatalf("Failed to encode route mapping: %v", err)
	}

	if err := os.WriteFile(*flagOut, data, 0644); err != nil {
		log.Fatalf("Failed to write route mapping: %v", err)
	}
	log.Printf("Route mapping saved to %s", *flagOut)
}

// encodeSorted writes the mapping with keys in numeric route-id order, so
// diffs between regenerations stay readable.
func encodeSorted(mapping map[string]string) ([]byte, error) {
	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range ids {
		name, err := json.Marshal(mapping[id])
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "  %q: %s", id, name)
		if i < len(ids)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
