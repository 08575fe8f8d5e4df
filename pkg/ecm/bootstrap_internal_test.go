// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Sparse VAR Estimation with Missing Data via Kalman Smoothing and ECM
// Class: 02-613 at Caregie Mellon University

package ecm

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ReadDirectory reads all files in a directory
func ReadDirectory(directory string) []os.DirEntry {
	files, err := os.ReadDir(directory)
	if err != nil {
		panic(fmt.Sprintf("Error reading directory %s: %v", directory, err))
	}
	return files
}

// skipComments returns the next line that is neither blank nor a # comment
func skipComments(scanner *bufio.Scanner) string {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

type BootstrapQuantileTest struct {
	Samples []float64
	Q       float64
	Result  float64
}

func ReadBootstrapQuantileTests(directory string) []BootstrapQuantileTest {
	inputFiles := ReadDirectory(directory + "input")
	outputFiles := ReadDirectory(directory + "output")
	if len(inputFiles) != len(outputFiles) {
		panic("Error: number of input and output files do not match!")
	}

	tests := make([]BootstrapQuantileTest, len(inputFiles))
	for i, inputFile := range inputFiles {
		tests[i].Samples, tests[i].Q = ReadBootstrapQuantileInput(directory + "input/" + inputFile.Name())
	}
	for i, outputFile := range outputFiles {
		tests[i].Result = ReadBootstrapQuantileOutput(directory + "output/" + outputFile.Name())
	}
	return tests
}

func readFloat(scanner *bufio.Scanner, what string) float64 {
	line := skipComments(scanner)
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		panic(fmt.Sprintf("Error parsing %s: %v", what, err))
	}
	return v
}

func ReadBootstrapQuantileInput(file string) ([]float64, float64) {
	f, err := os.Open(file)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)

	// N, then N samples, then q
	n, err := strconv.Atoi(skipComments(scanner))
	if err != nil {
		panic(fmt.Sprintf("Error parsing N: %v", err))
	}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = readFloat(scanner, fmt.Sprintf("sample %d", i))
	}
	return samples, readFloat(scanner, "q")
}

func ReadBootstrapQuantileOutput(file string) float64 {
	f, err := os.Open(file)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	return readFloat(bufio.NewScanner(f), "result")
}

func TestBootstrapQuantile(t *testing.T) {
	tests := ReadBootstrapQuantileTests("testdata/BootstrapQuantile/")
	for i, test := range tests {
		got := bootstrapQuantile(test.Samples, test.Q)
		if !almostEqual(got, test.Result, 1e-9) {
			t.Errorf("Test %d: bootstrapQuantile(%v, %v) = %v; want %v",
				i+1, test.Samples, test.Q, got, test.Result)
		}
	}
}

func TestBootstrapQuantileEmpty(t *testing.T) {
	if got := bootstrapQuantile(nil, 0.5); !math.IsNaN(got) {
		t.Errorf("bootstrapQuantile(nil) = %v; want NaN", got)
	}
}

func TestBootstrapQuantileDoesNotSort(t *testing.T) {
	samples := []float64{3, 1, 2}
	bootstrapQuantile(samples, 0.5)
	if samples[0] != 3 || samples[1] != 1 || samples[2] != 2 {
		t.Errorf("samples reordered: %v", samples)
	}
}
