// Package classpath maps qualified class names to class file bytes.
//
//	cp, _ := classpath.New(classpath.Split(os.Getenv("CLASSPATH"))...)
//	defer cp.Close()
//	res, err := cp.Find("java.lang.String")
//	if errors.IsNotFound(err) {
//	    // not on the classpath
//	}
//
// Entries are directories or .jar/.zip archives, searched in order. Lookup
// results are cached per classpath.
package classpath
