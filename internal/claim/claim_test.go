package claim

import (
	"testing"
	"time"
)

func TestGenerateVerify(t *testing.T) {
	secret := []byte("secret")
	key := Generate("s1", "u1", "camp-1", "youtube_abc", 2, secret)
	c, err := Verify(key, secret, time.Minute)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.SessionID != "s1" || c.UserID != "u1" || c.CampaignID != "camp-1" || c.ContentID != "youtube_abc" || c.Seq != 2 {
		t.Fatalf("unexpected claim: %+v", c)
	}
}

func TestGenerateDistinctPerSlot(t *testing.T) {
	secret := []byte("secret")
	a := Generate("s1", "u1", "camp-1", "c1", 1, secret)
	b := Generate("s1", "u1", "camp-1", "c1", 2, secret)
	if a == b {
		t.Fatalf("expected distinct keys for distinct slots")
	}
}

func TestVerifyExpired(t *testing.T) {
	secret := []byte("s")
	key := Generate("s", "u", "c", "ct", 1, secret)
	time.Sleep(1100 * time.Millisecond)
	if _, err := Verify(key, secret, time.Millisecond); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := Verify(key, secret, 0); err != nil {
		t.Fatalf("zero ttl should skip age check, got %v", err)
	}
}

func TestVerifyInvalid(t *testing.T) {
	secret := []byte("s")
	key := Generate("s", "u", "c", "ct", 1, secret)
	cases := map[string]string{
		"tampered":   key + "x",
		"no dot":     "abc",
		"bad base64": "!!.!!",
	}
	for name, k := range cases {
		if _, err := Verify(k, secret, time.Minute); err != ErrInvalid {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
	if _, err := Verify(key, []byte("other"), time.Minute); err != ErrInvalid {
		t.Fatalf("wrong secret: expected ErrInvalid, got %v", err)
	}
}
