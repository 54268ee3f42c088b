package occupancy

import (
	"encoding/binary"
	"io"
	"math"
)

// OccupancyThreshold is the log-odds value at and above which a voxel counts
// as occupied. Zero log-odds is a probability of 0.5.
const OccupancyThreshold float32 = 0

// Node is an occupancy voxel holding its log-odds.
type Node struct {
	LogOdds float32
}

func NewNode() *Node { return &Node{} }

func (n *Node) Clone() *Node {
	c := *n
	return &c
}

func (n *Node) ByteSize() int { return 4 }

func (n *Node) WriteBinary(w io.Writer) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(n.LogOdds))
	_, err := w.Write(b[:])
	return err
}

func (n *Node) ReadBinary(r io.Reader) error {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	n.LogOdds = math.Float32frombits(binary.LittleEndian.Uint32(b[:]))
	return nil
}

func (n *Node) Occupied() bool { return n.LogOdds >= OccupancyThreshold }

func (n *Node) Probability() float64 { return Probability(n.LogOdds) }

// LogOdds converts a probability in (0, 1) to log-odds.
func LogOdds(p float64) float32 {
	return float32(math.Log(p / (1 - p)))
}

// Probability converts log-odds back to a probability.
func Probability(logOdds float32) float64 {
	return 1 - 1/(1+math.Exp(float64(logOdds)))
}
