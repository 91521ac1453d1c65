// Package handle implements the tagged Value handle the environment
// stores per variable name: a primitive type tag paired with a cell of
// that type. The tag is the variable's declared type; it never changes
// for the life of the cell.
package handle

import (
	"sona/internal/cell"
	"sona/internal/sound"
)

// Handle is any of the four concrete handle variants below.
type Handle interface {
	Ty() cell.Type
}

type Real struct{ Cell *cell.Cell[float64] }

func (Real) Ty() cell.Type { return cell.Real }

type Bool struct{ Cell *cell.Cell[bool] }

func (Bool) Ty() cell.Type { return cell.Bool }

type String struct{ Cell *cell.Cell[string] }

func (String) Ty() cell.Type { return cell.String }

type Sound struct{ Cell *cell.Cell[sound.Value] }

func (Sound) Ty() cell.Type { return cell.Sound }

func NewReal() Real     { return Real{Cell: cell.New[float64]()} }
func NewBool() Bool     { return Bool{Cell: cell.New[bool]()} }
func NewString() String { return String{Cell: cell.New[string]()} }
func NewSound() Sound   { return Sound{Cell: cell.NewWith[sound.Value](sound.Silence)} }
