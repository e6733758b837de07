package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	CabinCount   = 5
	RowsPerCabin = 10
)

type Side string

const (
	SideLeft  Side = "L"
	SideRight Side = "R"
)

// SeatID identifies a seat by its position. The string form is
// "<cabin>-<row><side>", for example "2-7R".
type SeatID struct {
	Cabin int
	Row   int
	Side  Side
}

func (id SeatID) String() string {
	return fmt.Sprintf("%d-%d%s", id.Cabin, id.Row, id.Side)
}

func (id SeatID) Valid() bool {
	return id.Cabin >= 1 && id.Cabin <= CabinCount &&
		id.Row >= 1 && id.Row <= RowsPerCabin &&
		(id.Side == SideLeft || id.Side == SideRight)
}

// Number is the display number of the seat inside its cabin, 1..20.
func (id SeatID) Number() int {
	n := (id.Row-1)*2 + 1
	if id.Side == SideRight {
		n++
	}
	return n
}

func (id SeatID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SeatID) UnmarshalText(text []byte) error {
	parsed, err := ParseSeatID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func ParseSeatID(s string) (SeatID, error) {
	cabinPart, rest, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || len(rest) < 2 {
		return SeatID{}, fmt.Errorf("malformed seat id %q", s)
	}
	cabin, err := strconv.Atoi(cabinPart)
	if err != nil {
		return SeatID{}, fmt.Errorf("malformed seat id %q: %w", s, err)
	}
	row, err := strconv.Atoi(rest[:len(rest)-1])
	if err != nil {
		return SeatID{}, fmt.Errorf("malformed seat id %q: %w", s, err)
	}
	id := SeatID{Cabin: cabin, Row: row, Side: Side(strings.ToUpper(rest[len(rest)-1:]))}
	if !id.Valid() {
		return SeatID{}, fmt.Errorf("seat id %q out of range", s)
	}
	return id, nil
}

type Seat struct {
	ID       SeatID
	BookedBy string
}

func (s Seat) IsBooked() bool {
	return s.BookedBy != ""
}

// Layout returns every seat of the vehicle, all free, ordered by
// cabin, row and side.
func Layout() []Seat {
	seats := make([]Seat, 0, CabinCount*RowsPerCabin*2)
	for cabin := 1; cabin <= CabinCount; cabin++ {
		for row := 1; row <= RowsPerCabin; row++ {
			for _, side := range []Side{SideLeft, SideRight} {
				seats = append(seats, Seat{ID: SeatID{Cabin: cabin, Row: row, Side: side}})
			}
		}
	}
	return seats
}

// SeatLess orders seat IDs by cabin, row, then side.
func SeatLess(a, b SeatID) bool {
	if a.Cabin != b.Cabin {
		return a.Cabin < b.Cabin
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Side < b.Side
}
