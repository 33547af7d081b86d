package core

import (
	"testing"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

func TestInputSlotKeepsNewest(t *testing.T) {
	var s InputSlot
	if !s.Offer(pb.Input{Seq: 5, Mx: 1}) {
		t.Fatal("first input rejected")
	}
	if !s.Offer(pb.Input{Seq: 6, Mx: -1}) {
		t.Fatal("newer input rejected")
	}
	in, ok := s.Take()
	if !ok || in.Seq != 6 || in.Mx != -1 {
		t.Fatalf("Take() = %+v, %v; want seq 6", in, ok)
	}
}

func TestInputSlotDropsReordered(t *testing.T) {
	var s InputSlot
	s.Offer(pb.Input{Seq: 9})
	if s.Offer(pb.Input{Seq: 8}) {
		t.Fatal("older input overwrote a newer one")
	}
	s.Take()
	if s.Offer(pb.Input{Seq: 9}) {
		t.Fatal("consumed sequence accepted again")
	}
	if !s.Offer(pb.Input{Seq: 10}) {
		t.Fatal("next sequence rejected")
	}
}

func TestInputSlotTakeClears(t *testing.T) {
	var s InputSlot
	s.Offer(pb.Input{Seq: 1, Mx: 1, Shoot: true})
	s.Take()
	in, ok := s.Take()
	if ok || in != (pb.Input{}) {
		t.Fatalf("second Take() = %+v, %v; want empty", in, ok)
	}
}

func TestInputSlotUnsequencedOverwrites(t *testing.T) {
	var s InputSlot
	s.Offer(pb.Input{Seq: 4})
	if !s.Offer(pb.Input{Mx: 0.5}) {
		t.Fatal("unsequenced input rejected")
	}
	in, _ := s.Take()
	if in.Seq != 0 || in.Mx != 0.5 {
		t.Fatalf("Take() = %+v", in)
	}
}
