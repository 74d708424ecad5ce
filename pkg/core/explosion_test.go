package core

import (
	"reflect"
	"testing"

	"robots/pkg/protocol"
)

func collectExplosion(center protocol.Position, radius, sizeX, sizeY uint16,
	blocks map[protocol.Position]struct{}) []protocol.Position {
	var visited []protocol.Position
	VisitExplosion(center, radius, sizeX, sizeY, func(pos protocol.Position) bool {
		visited = append(visited, pos)
		_, blocked := blocks[pos]
		return !blocked
	})
	return visited
}

// 射线按左、右、下、上的顺序延伸,打到方块的格子被波及但射线终止
func TestExplosionRayOrderAndBlocking(t *testing.T) {
	center := protocol.Position{X: 2, Y: 2}
	blocks := map[protocol.Position]struct{}{
		{X: 1, Y: 2}: {},
	}
	got := collectExplosion(center, 2, 5, 5, blocks)
	want := []protocol.Position{
		{X: 2, Y: 2},
		{X: 1, Y: 2},
		{X: 3, Y: 2}, {X: 4, Y: 2},
		{X: 2, Y: 1}, {X: 2, Y: 0},
		{X: 2, Y: 3}, {X: 2, Y: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("波及格子不符:\ngot  %v\nwant %v", got, want)
	}
}

// 炸弹格本身有方块时四条射线都不延伸
func TestExplosionCenterBlockStopsAllRays(t *testing.T) {
	center := protocol.Position{X: 2, Y: 2}
	blocks := map[protocol.Position]struct{}{center: {}}
	got := collectExplosion(center, 3, 5, 5, blocks)
	want := []protocol.Position{center}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("波及格子不符:\ngot  %v\nwant %v", got, want)
	}
}

func TestExplosionClippedAtEdges(t *testing.T) {
	got := collectExplosion(protocol.Position{X: 0, Y: 0}, 3, 2, 2, nil)
	want := []protocol.Position{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 0, Y: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("波及格子不符:\ngot  %v\nwant %v", got, want)
	}
}

func TestExplosionRadiusZero(t *testing.T) {
	got := collectExplosion(protocol.Position{X: 1, Y: 1}, 0, 3, 3, nil)
	want := []protocol.Position{{X: 1, Y: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("波及格子不符:\ngot  %v\nwant %v", got, want)
	}
}
