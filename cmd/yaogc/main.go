// Command yaogc runs a two-party secure computation of one circuit
// from a circuit file, with Alice and Bob's inputs given as bit
// strings on the command line.
package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"

	"github.com/getamis/sirius/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kobakaku/yaogc/circuit"
	"github.com/kobakaku/yaogc/circuitfile"
	"github.com/kobakaku/yaogc/twoparty"
)

var rootCmd = &cobra.Command{
	Use:   "yaogc",
	Short: "Two-party secure computation over a garbled circuit",
	Long:  `yaogc evaluates a Boolean circuit jointly between Alice and Bob using Yao's garbled-circuit protocol, without either party learning the other's input beyond what the output reveals.`,
	RunE:  run,
}

func init() {
	rootCmd.Flags().String("circuit", "", "path to a circuit JSON file (single circuit or collection)")
	rootCmd.Flags().Int("index", 0, "circuit index to run, for a multi-circuit file")
	rootCmd.Flags().String("alice", "", "Alice's input bits, e.g. \"101\"")
	rootCmd.Flags().String("bob", "", "Bob's input bits, e.g. \"011\"")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	circuitPath := viper.GetString("circuit")
	index := viper.GetInt("index")
	aliceBits := viper.GetString("alice")
	bobBits := viper.GetString("bob")

	if circuitPath == "" {
		return fmt.Errorf("yaogc: --circuit is required")
	}

	log.Info("loading circuit", "path", circuitPath, "index", index)

	f, err := os.Open(circuitPath)
	if err != nil {
		return fmt.Errorf("yaogc: opening circuit file: %w", err)
	}
	defer f.Close()

	circuits, err := circuitfile.Load(f)
	if err != nil {
		return fmt.Errorf("yaogc: loading circuit file: %w", err)
	}
	if index < 0 || index >= len(circuits) {
		return fmt.Errorf("yaogc: circuit index %d out of range (file has %d circuits)", index, len(circuits))
	}
	c := circuits[index]

	if err := c.Validate(); err != nil {
		return fmt.Errorf("yaogc: invalid circuit %q: %w", c.ID, err)
	}

	aliceInputs, err := bindBits(c.AliceWires, aliceBits)
	if err != nil {
		return fmt.Errorf("yaogc: Alice inputs: %w", err)
	}
	bobInputs, err := bindBits(c.BobWires, bobBits)
	if err != nil {
		return fmt.Errorf("yaogc: Bob inputs: %w", err)
	}

	log.Info("running protocol", "circuit", c.ID, "gates", len(c.Gates))

	outputs, err := twoparty.Execute(&c, aliceInputs, bobInputs, rand.Reader)
	if err != nil {
		return fmt.Errorf("yaogc: protocol execution failed: %w", err)
	}

	fmt.Println(formatOutputs(&c, aliceInputs, bobInputs, outputs))
	return nil
}

// bindBits assigns each character of bits, in order, to the
// corresponding entry of wires.
func bindBits(wires []circuit.WireID, bits string) (map[circuit.WireID]uint8, error) {
	if len(bits) != len(wires) {
		return nil, fmt.Errorf("expected %d bits, got %d (%q)", len(wires), len(bits), bits)
	}
	out := make(map[circuit.WireID]uint8, len(wires))
	for i, w := range wires {
		bit, err := strconv.ParseUint(string(bits[i]), 2, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid bit %q at position %d", bits[i], i)
		}
		out[w] = uint8(bit)
	}
	return out, nil
}

// formatOutputs renders one summary line binding every wire (Alice's,
// Bob's, and the circuit's outputs) to its cleartext bit.
func formatOutputs(c *circuit.Circuit, aliceInputs, bobInputs, outputs map[circuit.WireID]uint8) string {
	s := fmt.Sprintf("circuit=%s alice=%v bob=%v output=%v", c.ID, aliceInputs, bobInputs, outputs)
	return s
}
