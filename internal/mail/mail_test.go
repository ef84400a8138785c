package mail

import "testing"

func TestDirectoryPutLookup(t *testing.T) {
	d := NewDirectory()

	if _, ok := d.Lookup("m1"); ok {
		t.Error("Lookup on empty directory returned a value")
	}

	d.Put("m1", Envelope{From: "a@x.com", Subject: "Hi"})
	env, ok := d.Lookup("m1")
	if !ok {
		t.Fatal("Lookup: missing after Put")
	}
	if env.From != "a@x.com" || env.Subject != "Hi" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestDirectoryIgnoresEmptyID(t *testing.T) {
	d := NewDirectory()
	d.Put("", Envelope{From: "a@x.com"})
	if _, ok := d.Lookup(""); ok {
		t.Error("empty ID was stored")
	}
}
