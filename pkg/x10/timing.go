package x10

import (
	"fmt"
	"time"
)

// Profile holds the burst timing for one mains frequency.
type Profile struct {
	// MainsFrequency is the nominal frequency in Hz.
	MainsFrequency int
	// BitLength is the width of one burst.
	BitLength time.Duration
	// BitDelay is the gap after each burst, so three bursts cover
	// the three phases within one half cycle.
	BitDelay time.Duration
	// OffsetDelay is the sampling point after a zero crossing.
	OffsetDelay time.Duration
	// HalfCycleDelay is the length of one half cycle.
	HalfCycleDelay time.Duration
}

var (
	// Profile50Hz is the timing for 50 Hz mains.
	Profile50Hz = Profile{
		MainsFrequency: 50,
		BitLength:      800 * time.Microsecond,
		BitDelay:       2333 * time.Microsecond,
		OffsetDelay:    500 * time.Microsecond,
		HalfCycleDelay: 10000 * time.Microsecond,
	}
	// Profile60Hz is the timing for 60 Hz mains.
	Profile60Hz = Profile{
		MainsFrequency: 60,
		BitLength:      800 * time.Microsecond,
		BitDelay:       1778 * time.Microsecond,
		OffsetDelay:    500 * time.Microsecond,
		HalfCycleDelay: 8334 * time.Microsecond,
	}
)

// ProfileSelectThreshold is the highest measured frequency in Hz still
// treated as 50 Hz mains.
const ProfileSelectThreshold = 54

// SelectProfile picks the fixed profile for a measured frequency.
func SelectProfile(freq int) Profile {
	if freq <= ProfileSelectThreshold {
		return Profile50Hz
	}
	return Profile60Hz
}

// ProfileFor returns the profile for a nominal 50 or 60 Hz setting.
func ProfileFor(freq int) (Profile, error) {
	switch freq {
	case 50:
		return Profile50Hz, nil
	case 60:
		return Profile60Hz, nil
	}
	return Profile{}, fmt.Errorf("unsupported mains frequency %d Hz", freq)
}

func (p Profile) String() string {
	return fmt.Sprintf("%dHz bit=%dus delay=%dus offset=%dus half-cycle=%dus",
		p.MainsFrequency,
		p.BitLength.Microseconds(),
		p.BitDelay.Microseconds(),
		p.OffsetDelay.Microseconds(),
		p.HalfCycleDelay.Microseconds())
}

// CalibrationEdges is the number of zero crossings timed by Calibrate,
// i.e. 100 mains cycles.
const CalibrationEdges = 200

// Calibration is the result of a mains frequency measurement.
type Calibration struct {
	// Elapsed is the time taken by CalibrationEdges crossings.
	Elapsed time.Duration
	// Frequency is the measured frequency, truncated to whole Hz.
	Frequency int
	Profile   Profile
}

func (c Calibration) String() string {
	return fmt.Sprintf("measured %dHz in %dus, profile %s",
		c.Frequency, c.Elapsed.Microseconds(), c.Profile)
}

// Calibrate measures the mains frequency on the zero-crossing input
// and selects the matching profile. It polls the input, so any edge
// handler must be detached by the caller.
func Calibrate(zc ZeroCrossReader, clock Clock, timeout time.Duration) (Calibration, error) {
	if err := waitZeroCross(zc, clock, 1, timeout); err != nil {
		return Calibration{}, err
	}
	start := clock.Now()
	if err := waitZeroCross(zc, clock, CalibrationEdges, timeout); err != nil {
		return Calibration{}, err
	}
	c := Calibration{Elapsed: clock.Now() - start}
	if us := c.Elapsed.Microseconds(); us > 0 {
		c.Frequency = int(100000000 / us)
	}
	c.Profile = SelectProfile(c.Frequency)
	return c, nil
}
